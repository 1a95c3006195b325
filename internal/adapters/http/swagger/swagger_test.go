package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		Register(ctx, mux)

		convey.Convey("Then it should handle /openapi.yaml route", func() {
			req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			for _, path := range []string{"/v1/score", "/v1/teams/score", "/v1/goals/risk", "/v1/peers/rank", "/v1/policies"} {
				convey.So(w.Body.String(), convey.ShouldContainSubstring, path+":")
			}
		})

		convey.Convey("And it should handle /api-docs route", func() {
			req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
		})

		convey.Convey("And it should reject other methods", func() {
			req := httptest.NewRequest("POST", "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})

	convey.Convey("Given a nil mux", t, func() {
		convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
	})
}
