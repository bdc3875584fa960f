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

// go-mds API
//
// # RESTful APIs to interact with the go-mds gateway
//
// Terms Of Service:
//
// Schemes: http
// Host: localhost:8000
// Version: 1.0.0
// Contact:
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/log"
)

const (
	ApiPrefix = "/api"
)

// Success response
// swagger:response okResp
type RespOk struct {
	// in:body
	Body struct {
		// HTTP status code 200 - OK
		Code int `json:"code"`
	}
}

// Error Bad Gateway
// swagger:response badGateway
type RespBadGateway struct {
	// in:body
	Body struct {
		// HTTP status code 502 - Bad Gateway
		Code int `json:"code"`
	}
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	gw *Gateway
}

func NewApiServer(ctx context.Context, cfg *config.Config, gw *Gateway) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.Host, cfg.Port)

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		gw:      gw,
	}
	return s, nil
}

// Start
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.Host, s.Config.Port)
	s.configureRouter()
	handler, err := specMiddleware(s.Router)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler: handlers.LoggingHandler(os.Stderr, handler),
		Addr:    fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix(ApiPrefix).Subrouter()
	// swagger:operation GET /config get device config
	// ---
	// summary: read the configuration reported by the device
	// description:
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "503":
	//     "$ref": "#/responses/badGateway"
	subRouter.HandleFunc("/config", s.handleDeviceConfig()).Methods("GET")
	// swagger:operation GET /status get gateway status
	// ---
	// summary: read the gateway status
	// description:
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	// swagger:operation GET /stats get forwarding counters
	// ---
	// summary: read the forwarding counters
	// description:
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/stats", s.handleStats()).Methods("GET")
	// swagger:operation POST /stats/reset reset forwarding counters
	// ---
	// summary: reset the forwarding counters
	// description:
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "502":
	//     "$ref": "#/responses/badGateway"
	subRouter.HandleFunc("/stats/reset", s.handleStatsReset()).Methods("POST")
	// swagger:operation GET /stream/{action:start|stop} start/stop
	// ---
	// summary: enable or disable chunk streaming on the device
	// description:
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "502":
	//     "$ref": "#/responses/badGateway"
	subRouter.HandleFunc("/stream/{action:start|stop}", s.handleStreamAction()).Methods("GET")
	s.Router.Path("/metrics").Handler(s.gw.metrics.Handler())
}

func (s *ApiServer) handleDeviceConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling device config request")

		devConfig := s.gw.DeviceConfig()
		if devConfig == nil {
			err := ErrNotReady{What: "device configuration not read yet"}
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		json.NewEncoder(w).Encode(devConfig)
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling status request")
		json.NewEncoder(w).Encode(s.gw.Status())
	}
}

func (s *ApiServer) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling stats request")
		json.NewEncoder(w).Encode(s.gw.Stats())
	}
}

func (s *ApiServer) handleStatsReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling stats reset request")

		if err := s.gw.StatsReset(); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(s.gw.Stats())
	}
}

func (s *ApiServer) handleStreamAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling stream action request: action: %s", vars["action"])

		var err error
		switch vars["action"] {
		case "start":
			err = s.gw.StreamStart()
		case "stop":
			err = s.gw.StreamStop()
		default:
			err := ErrUnknownOperation{
				What: "Wrong stream action. Must be one of start/stop",
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(s.gw.Status())
	}
}
