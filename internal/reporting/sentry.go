package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"bricks/internal/logging"
)

var uuidRx = regexp.MustCompile(`[0-9a-f]{8}-?([0-9a-f]{4}-?){3}[0-9a-f]{12}`)
var walletRx = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

func sanitizeError(err string) string {
	err = uuidRx.ReplaceAllString(err, "<uuid>")
	err = walletRx.ReplaceAllString(err, "<address>")
	return err
}

type reportingMetaContextKey struct{}

type meta struct {
	tags     map[string]string
	playerID string
}

func metaFromContext(ctx context.Context) meta {
	m, ok := ctx.Value(reportingMetaContextKey{}).(meta)
	if !ok {
		return meta{tags: map[string]string{}}
	}
	return meta{tags: maps.Clone(m.tags), playerID: m.playerID}
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	m := metaFromContext(ctx)
	maps.Copy(m.tags, tags)
	return context.WithValue(ctx, reportingMetaContextKey{}, m)
}

func SetPlayerIDInContext(ctx context.Context, playerID string) context.Context {
	m := metaFromContext(ctx)
	m.playerID = playerID
	return context.WithValue(ctx, reportingMetaContextKey{}, m)
}

// Report logs err and, when a Sentry hub is attached to ctx, captures it.
func Report(ctx context.Context, err error, extras ...map[string]string) {
	if err == nil {
		err = errors.New("no error provided")
	}
	logger := logging.FromContext(ctx)
	logger.Error("reporting error", slog.String("error", err.Error()), slog.Any("extras", extras))

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		m := metaFromContext(ctx)
		scope.SetTags(m.tags)
		if m.playerID != "" {
			scope.SetUser(sentry.User{ID: m.playerID})
		}
		for _, extra := range extras {
			for key, value := range extra {
				scope.SetExtra(key, value)
			}
		}
		scope.SetFingerprint([]string{"{{ default }}", sanitizeError(err.Error())})
		hub.CaptureException(err)
	})
}

// InitSentryMiddleware initialises the Sentry client. An empty DSN yields a
// disabled client, so the middleware is always safe to install.
func InitSentryMiddleware(dsn, environment string) (func(http.Handler) http.Handler, func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0 / 100.0,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init sentry: %w", err)
	}

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	mw := func(next http.Handler) http.Handler {
		return sentryHandler.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := AddTagsToContext(r.Context(), map[string]string{
				"methodPath": fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
	flush := func() {
		sentry.Flush(5 * time.Second)
	}
	return mw, flush, nil
}
