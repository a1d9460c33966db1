package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/medusa"
)

const (
	msgInvalidJSON         = "Invalid JSON body."
	msgInvalidBody         = "Invalid request body."
	msgCredentialsRequired = "Email and password are required."
)

// registerFields are the only keys passed on to account creation.
var registerFields = []string{"email", "password", "first_name", "last_name", "phone"}

// AuthForwarder relays one browser request to the commerce backend.
type AuthForwarder interface {
	Forward(ctx context.Context, req medusa.ForwardRequest) (*medusa.Relay, error)
}

type authHandlers struct {
	backend AuthForwarder
	logg    *logger.Logger
}

func (h *authHandlers) login(c *gin.Context) {
	body, ok := readJSON(c)
	if !ok {
		return
	}
	obj, _ := body.(map[string]any)
	email, emailOK := obj["email"].(string)
	password, passwordOK := obj["password"].(string)
	if !emailOK || !passwordOK {
		writeMessage(c, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		writeMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.forward(c, medusa.ForwardRequest{
		Method: http.MethodPost,
		Path:   "/store/auth",
		Body:   payload,
		Cookie: c.GetHeader("Cookie"),
	})
}

func (h *authHandlers) logout(c *gin.Context) {
	h.forward(c, medusa.ForwardRequest{
		Method: http.MethodPost,
		Path:   "/store/auth/logout",
		Cookie: c.GetHeader("Cookie"),
	})
}

func (h *authHandlers) me(c *gin.Context) {
	h.forward(c, medusa.ForwardRequest{
		Method: http.MethodGet,
		Path:   "/store/auth",
		Cookie: c.GetHeader("Cookie"),
	})
}

// register creates the account and, when that succeeds, logs the new
// customer in and relays the login response with its session cookie.
func (h *authHandlers) register(c *gin.Context) {
	body, ok := readJSON(c)
	if !ok {
		return
	}
	obj, isObject := body.(map[string]any)
	if !isObject {
		writeMessage(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	fields, ok := sanitizeRegistration(obj)
	if !ok {
		writeMessage(c, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	ctx := c.Request.Context()
	payload, err := json.Marshal(fields)
	if err != nil {
		writeMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	created, err := h.backend.Forward(ctx, medusa.ForwardRequest{
		Method: http.MethodPost,
		Path:   "/store/customers",
		Body:   payload,
	})
	if err != nil {
		writeMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !created.OK() {
		h.logg.Warn(h.logg.WithField(ctx, "status", created.Status), "register.rejected")
		c.Data(created.Status, gin.MIMEJSON, relayBody(created.Body, true))
		return
	}

	credentials, err := json.Marshal(map[string]string{"email": fields["email"], "password": fields["password"]})
	if err != nil {
		writeMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.forward(c, medusa.ForwardRequest{
		Method: http.MethodPost,
		Path:   "/store/auth",
		Body:   credentials,
	})
}

// sanitizeRegistration keeps the allow-listed keys, skips nulls and trims
// strings. Any other value type, or a blank email or password, is rejected.
func sanitizeRegistration(body map[string]any) (map[string]string, bool) {
	out := make(map[string]string, len(registerFields))
	for _, key := range registerFields {
		raw, present := body[key]
		if !present || raw == nil {
			continue
		}
		value, isString := raw.(string)
		if !isString {
			return nil, false
		}
		out[key] = strings.TrimSpace(value)
	}
	if out["email"] == "" || out["password"] == "" {
		return nil, false
	}
	return out, true
}

func (h *authHandlers) forward(c *gin.Context, req medusa.ForwardRequest) {
	relay, err := h.backend.Forward(c.Request.Context(), req)
	if err != nil {
		writeMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	for _, cookie := range relay.SetCookies {
		c.Writer.Header().Add("Set-Cookie", cookie)
	}
	c.Data(relay.Status, gin.MIMEJSON, relayBody(relay.Body, false))
}

// readJSON decodes the request body into a generic JSON value, answering 400
// itself when the body is not JSON.
func readJSON(c *gin.Context) (any, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeMessage(c, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		writeMessage(c, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	return body, true
}

// relayBody returns a backend body fit to send as JSON: empty becomes {}
// and anything that is not JSON is wrapped as {"message": raw}.
func relayBody(raw []byte, nullAsEmpty bool) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []byte("{}")
	}
	if !json.Valid(trimmed) {
		wrapped, err := json.Marshal(gin.H{"message": string(raw)})
		if err != nil {
			return []byte("{}")
		}
		return wrapped
	}
	if nullAsEmpty && bytes.Equal(trimmed, []byte("null")) {
		return []byte("{}")
	}
	return raw
}

func writeMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
