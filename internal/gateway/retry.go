package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/googleapi"

	"drivedocs/internal/apperror"
)

func defaultBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(250*time.Millisecond),
		backoff.WithMaxInterval(4*time.Second),
	)
}

// retry runs op until it succeeds, fails permanently, or maxRetries extra
// attempts are used up. Only idempotent calls go through here.
func retry(ctx context.Context, b backoff.BackOff, maxRetries int, log hclog.Logger, name string, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)

	err := backoff.RetryNotify(func() error {
		err := op()
		if err != nil && !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		log.Warn("transient provider error, retrying", "call", name, "error", err, "wait", wait)
	})
	return err
}

// transient reports whether err is worth another attempt: network errors,
// rate limiting and server-side failures.
func transient(err error) bool {
	// Credential failures (auth or an unusable token store) surface through
	// the transport and will not heal on retry.
	if errors.Is(err, apperror.ErrAuth) || errors.Is(err, apperror.ErrConfig) || errors.Is(err, context.Canceled) {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}

	var nerr net.Error
	return errors.As(err, &nerr) || errors.Is(err, context.DeadlineExceeded)
}

// classify attaches an apperror kind to a provider error. fallback is used
// when the error is not a credential failure or a missing document.
func classify(op string, fallback, err error) error {
	kind := fallback
	switch {
	case errors.Is(err, apperror.ErrAuth):
		kind = apperror.ErrAuth
	case errors.Is(err, apperror.ErrConfig):
		kind = apperror.ErrConfig
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			kind = apperror.ErrNotFound
		case http.StatusUnauthorized:
			kind = apperror.ErrAuth
		}
	}
	return apperror.New(op, kind, err)
}
