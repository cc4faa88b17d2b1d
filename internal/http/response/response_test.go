package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Forbidden(c, "no permission")

	resp := decodeBody(t, w)
	if resp.StatusCode != CodeForbidden {
		t.Fatalf("status code want %d got %d", CodeForbidden, resp.StatusCode)
	}
	if resp.Msg != "no permission" {
		t.Fatalf("msg want %q got %q", "no permission", resp.Msg)
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	Error(c, CodeBadRequest, "bad input")

	resp := decodeBody(t, w)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data should carry request id, got %T", resp.Data)
	}
	if data["request_id"] != "req-1" {
		t.Fatalf("request_id want req-1 got %v", data["request_id"])
	}
}
