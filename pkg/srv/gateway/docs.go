/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package gateway

import (
	_ "embed"
	"net/http"
	"path"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
)

//go:embed swagger.json
var swaggerJSON []byte

// specMiddleware serves the embedded swagger document and the ReDoc UI
// in front of the API routes
func specMiddleware(next http.Handler) (http.Handler, error) {
	doc, err := loads.Analyzed(swaggerJSON, "2.0")
	if err != nil {
		return nil, err
	}
	handler := middleware.Spec(ApiPrefix, doc.Raw(), next)
	handler = middleware.Redoc(middleware.RedocOpts{
		BasePath: ApiPrefix,
		SpecURL:  path.Join(ApiPrefix, "swagger.json"),
		Path:     "docs",
	}, handler)
	return handler, nil
}
