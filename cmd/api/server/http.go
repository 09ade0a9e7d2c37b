package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"user-management-service/api/swagger"
)

// swaggerPath is where the gateway serves the OpenAPI document
const swaggerPath = "/swagger/user.swagger.json"

// SetupHTTPGateway creates the ops gateway: GET /v1/health proxied to the gRPC
// health service, and the Swagger UI for the REST API.
func SetupHTTPGateway(grpcAddr string, httpAddr string, l *zap.Logger) (*http.Server, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial gRPC server: %w", err)
	}

	// Create gRPC-Gateway mux
	mux := runtime.NewServeMux()
	if err := mux.HandlePath(http.MethodGet, "/v1/health", healthHandler(mux, healthpb.NewHealthClient(conn))); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to register gateway: %w", err)
	}

	l.Info("ops gateway configured", zap.String("address", httpAddr))
	l.Info("Swagger UI available at", zap.String("url", "http://localhost"+httpAddr+"/swagger/"))

	return &http.Server{
		Addr:              httpAddr,
		Handler:           gatewayHandler(mux),
		ReadHeaderTimeout: 2 * time.Second,
	}, conn, nil
}

// gatewayHandler serves the Swagger UI and the OpenAPI document, and sends
// everything else to the gateway mux.
func gatewayHandler(mux *runtime.ServeMux) http.Handler {
	httpMux := http.NewServeMux()

	httpMux.HandleFunc(swaggerPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(swagger.UserJSON)
	})
	httpMux.HandleFunc("/swagger/", httpSwagger.Handler(httpSwagger.URL(swaggerPath)))
	httpMux.Handle("/", mux)

	return httpMux
}

// healthHandler answers with the gRPC health status as JSON. A status other than
// SERVING is reported as 503.
func healthHandler(mux *runtime.ServeMux, client healthpb.HealthClient) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		resp, err := client.Check(r.Context(), &healthpb.HealthCheckRequest{
			Service: r.URL.Query().Get("service"),
		})
		if err != nil {
			runtime.HTTPError(r.Context(), mux, &runtime.JSONPb{}, w, r, err)
			return
		}

		body, err := protojson.Marshal(resp)
		if err != nil {
			runtime.HTTPError(r.Context(), mux, &runtime.JSONPb{}, w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(body)
	}
}
