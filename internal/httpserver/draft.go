package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	draftCookieName      = "draft_mode"
	draftSignaturePrefix = "draft_mode:"
	defaultDraftTTL      = time.Hour
	msgInvalidPreview    = "Invalid preview token."
)

// draftGate issues and checks the signed cookie that turns on CMS draft
// content for one browser. Without a secret no cookie is ever valid.
type draftGate struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func newDraftGate(secret string, ttl time.Duration, secure bool) *draftGate {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &draftGate{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

func (g *draftGate) sign(expires int64) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(draftSignaturePrefix + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// cookieValue is "<unix expiry>.<hex hmac>".
func (g *draftGate) cookieValue() string {
	expires := g.now().Add(g.ttl).Unix()
	return strconv.FormatInt(expires, 10) + "." + g.sign(expires)
}

func (g *draftGate) valid(value string) bool {
	if len(g.secret) == 0 || value == "" {
		return false
	}
	rawExpiry, sig, ok := strings.Cut(value, ".")
	if !ok {
		return false
	}
	expires, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil || g.now().Unix() >= expires {
		return false
	}
	return hmac.Equal([]byte(g.sign(expires)), []byte(sig))
}

func (g *draftGate) active(c *gin.Context) bool {
	v, err := c.Cookie(draftCookieName)
	return err == nil && g.valid(v)
}

// enable checks ?secret= against the configured preview secret and sets the
// draft cookie.
func (g *draftGate) enable(c *gin.Context) {
	presented := c.Query("secret")
	if len(g.secret) == 0 || !hmac.Equal(g.secret, []byte(presented)) {
		writeMessage(c, http.StatusUnauthorized, msgInvalidPreview)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(draftCookieName, g.cookieValue(), int(g.ttl.Seconds()), "/", "", g.secure, true)
	c.JSON(http.StatusOK, gin.H{"draft": true})
}

func (g *draftGate) disable(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(draftCookieName, "", -1, "/", "", g.secure, true)
	c.JSON(http.StatusOK, gin.H{"draft": false})
}
