package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// secretParams are query parameter and attribute names whose values are
// masked. Phishing links commonly carry the victim's session, one-time
// codes or e-mail address in these.
var secretParams = map[string]bool{
	"password":     true,
	"passwd":       true,
	"pwd":          true,
	"pass":         true,
	"token":        true,
	"access_token": true,
	"id_token":     true,
	"code":         true,
	"otp":          true,
	"pin":          true,
	"sig":          true,
	"signature":    true,
	"sid":          true,
	"sessionid":    true,
	"phpsessid":    true,
	"jsessionid":   true,
	"email":        true,
	"login_hint":   true,
	"apikey":       true,
	"api_key":      true,
}

// secretFragments mark a name as secret when it contains one of them.
var secretFragments = []string{"password", "passwd", "token", "session", "secret"}

// embeddedURL finds absolute URLs inside free text such as error messages.
var embeddedURL = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://[^\s"'<>]+`)

// MaskValue replaces a whole attribute value.
const MaskValue = "***REDACTED***"

// urlMask replaces secrets inside URLs, where MaskValue would be escaped.
const urlMask = "REDACTED"

// SecureHandler wraps an slog.Handler and redacts secrets carried by
// scanned URLs before records reach the wrapped handler. URL attributes,
// error values and strings that embed URLs are all rewritten.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler returns a SecureHandler around handler, or around
// slog.Default().Handler() when handler is nil.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs redacts attrs before adding them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup delegates to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		if isSecretName(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		if s, ok := RedactText(a.Value.String()); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		// Fetch errors quote the request URL.
		if err, isErr := a.Value.Any().(error); isErr && err != nil {
			if s, ok := RedactText(err.Error()); ok {
				return slog.String(a.Key, s)
			}
		}
	}
	return a
}

func isSecretName(name string) bool {
	name = strings.ToLower(name)
	if secretParams[name] {
		return true
	}
	for _, f := range secretFragments {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// RedactText applies RedactURL to every absolute URL inside s. It reports
// whether anything was masked.
func RedactText(s string) (string, bool) {
	changed := false
	out := embeddedURL.ReplaceAllStringFunc(s, func(m string) string {
		r, ok := RedactURL(m)
		changed = changed || ok
		return r
	})
	return out, changed
}

// RedactURL masks the userinfo password and the values of secret query
// parameters in s. It reports false, leaving s untouched, when s is not an
// absolute URL or holds nothing to redact.
func RedactURL(s string) (string, bool) {
	if !strings.Contains(s, "://") {
		return s, false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s, false
	}

	changed := false
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), urlMask)
			changed = true
		}
	}

	if u.RawQuery != "" {
		q, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			masked := false
			for key, values := range q {
				if !isSecretName(key) {
					continue
				}
				for i := range values {
					values[i] = urlMask
				}
				masked = true
			}
			if masked {
				u.RawQuery = q.Encode()
				changed = true
			}
		}
	}

	if !changed {
		return s, false
	}
	return u.String(), true
}

// NewSecureLogger returns a text logger on w that redacts URL secrets.
// verbose selects slog.LevelDebug; otherwise only warnings and errors are
// written.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON lines output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
