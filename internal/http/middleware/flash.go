package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Flash levels understood by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

const (
	flashCookie     = "flash"
	flashInKey      = "flash.in"
	flashPendingKey = "flash.pending"
	// maxFlashCookie keeps the encoded cookie well under browser limits.
	maxFlashCookie = 3072
)

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Level string `json:"l"`
	Text  string `json:"t"`
}

// Flash decodes messages carried over from the previous response. A cookie
// that fails to decode is dropped.
func Flash() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
			if msgs, err := decodeFlash(raw); err == nil {
				c.Set(flashInKey, msgs)
			} else {
				writeFlashCookie(c, nil)
			}
		}
		c.Next()
	}
}

// AddFlash queues a message for the next page shown to this client, either
// after a redirect or on the current response when it renders Flashes.
func AddFlash(c *gin.Context, level, text string) {
	pending := pendingFlashes(c)
	pending = append(pending, FlashMessage{Level: level, Text: text})
	c.Set(flashPendingKey, pending)
	writeFlashCookie(c, pending)
}

// Flashes returns and consumes every message visible to this request:
// those carried in by the cookie followed by those queued with AddFlash.
func Flashes(c *gin.Context) []FlashMessage {
	var out []FlashMessage
	if v, ok := c.Get(flashInKey); ok {
		out, _ = v.([]FlashMessage)
	}
	out = append(out, pendingFlashes(c)...)
	if len(out) > 0 {
		c.Set(flashInKey, []FlashMessage(nil))
		c.Set(flashPendingKey, []FlashMessage(nil))
		writeFlashCookie(c, nil)
	}
	return out
}

func pendingFlashes(c *gin.Context) []FlashMessage {
	if v, ok := c.Get(flashPendingKey); ok {
		if msgs, ok := v.([]FlashMessage); ok {
			return msgs
		}
	}
	return nil
}

// writeFlashCookie replaces any flash Set-Cookie already queued on the
// response. An empty msgs expires the cookie.
func writeFlashCookie(c *gin.Context, msgs []FlashMessage) {
	h := c.Writer.Header()
	prev := h.Values("Set-Cookie")
	h.Del("Set-Cookie")
	for _, v := range prev {
		if !strings.HasPrefix(v, flashCookie+"=") {
			h.Add("Set-Cookie", v)
		}
	}

	ck := &http.Cookie{Name: flashCookie, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	if len(msgs) == 0 {
		ck.MaxAge = -1
	} else {
		val, err := encodeFlash(msgs)
		for err == nil && len(val) > maxFlashCookie && len(msgs) > 1 {
			msgs = msgs[1:]
			val, err = encodeFlash(msgs)
		}
		if err != nil {
			return
		}
		ck.Value = val
	}
	http.SetCookie(c.Writer, ck)
}

func encodeFlash(msgs []FlashMessage) (string, error) {
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeFlash(raw string) ([]FlashMessage, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	var msgs []FlashMessage
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
