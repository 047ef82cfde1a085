package verifier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"proovd/internal/platform/logger"
	"proovd/internal/verification/models"
	"proovd/internal/verification/verifier/mocks"
)

const testToken = "ab12cd34ef56"

// recordingSleep captures inter-attempt delays instead of waiting, keeping
// the retry tests instant while still asserting the fixed 2s policy.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

type VerifierSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	resolver *mocks.MockResolver
	sleeper  *recordingSleep
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.resolver = mocks.NewMockResolver(s.ctrl)
	s.sleeper = &recordingSleep{}
}

func (s *VerifierSuite) newVerifier(opts ...Option) *Verifier {
	base := []Option{
		WithLogger(logger.NewDiscard()),
		WithProduction(true),
		WithSleep(s.sleeper.sleep),
	}
	return New(s.resolver, append(base, opts...)...)
}

func (s *VerifierSuite) TestVerifySucceedsOnFirstAttempt() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.acme.io").
		Return([]string{testToken}, nil)
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.www.acme.io").
		Return(nil, errors.New("no such host"))

	result := s.newVerifier().Verify(context.Background(), "acme.io", testToken)

	s.True(result.Verified)
	s.Equal(models.MethodDNS, result.Method)
	s.Empty(result.Reason)
	s.Empty(s.sleeper.delays, "a first-attempt match must not incur any delay")
}

func (s *VerifierSuite) TestVerifyMatchIsCaseInsensitiveAndTrimmed() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), gomock.Any()).
		Return([]string{" AB12CD34EF56 "}, nil).
		Times(2)

	result := s.newVerifier().Verify(context.Background(), "acme.io", testToken)
	s.True(result.Verified)
}

func (s *VerifierSuite) TestVerifyAcceptsTokenOnWwwRecord() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.acme.io").
		Return([]string{"some-other-value"}, nil)
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.www.acme.io").
		Return([]string{testToken}, nil)

	result := s.newVerifier().Verify(context.Background(), "acme.io", testToken)
	s.True(result.Verified)
}

func (s *VerifierSuite) TestVerifyNormalizesTheDomainFirst() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.acme.io").
		Return([]string{testToken}, nil)
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.www.acme.io").
		Return(nil, errors.New("no such host"))

	result := s.newVerifier().Verify(context.Background(), "https://www.acme.io/pricing", testToken)
	s.True(result.Verified)
}

func (s *VerifierSuite) TestVerifyRetriesWithFixedDelay() {
	// Every lookup rejects: 3 attempts x 2 names, 2 inter-attempt pauses.
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("resolver unreachable")).
		Times(6)

	result := s.newVerifier().Verify(context.Background(), "acme.io", testToken)

	s.False(result.Verified)
	s.Equal([]time.Duration{2 * time.Second, 2 * time.Second}, s.sleeper.delays)
	s.Contains(result.Reason, "_proovd.acme.io")
	s.Contains(result.Reason, testToken)
	s.Contains(result.Reason, "24 hours")
}

func (s *VerifierSuite) TestVerifyTreatsWrongValuesAsNonMatch() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), gomock.Any()).
		Return([]string{"unrelated", "v=spf1 include:_spf.google.com ~all"}, nil).
		Times(6)

	result := s.newVerifier().Verify(context.Background(), "acme.io", testToken)

	s.False(result.Verified)
	s.Len(s.sleeper.delays, 2)
}

func (s *VerifierSuite) TestVerifyOneLookupFailingDoesNotDropTheOther() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.acme.io").
		Return(nil, errors.New("timeout"))
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.www.acme.io").
		Return([]string{testToken}, nil)

	result := s.newVerifier().Verify(context.Background(), "acme.io", testToken)
	s.True(result.Verified)
}

func (s *VerifierSuite) TestVerifySkipsWwwLookupForBareLabels() {
	// Production mode so "localhost" is not bypassed; a host without a dot
	// issues exactly one lookup per attempt.
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), "_proovd.localhost").
		Return([]string{testToken}, nil)

	result := s.newVerifier().Verify(context.Background(), "localhost", testToken)
	s.True(result.Verified)
}

func (s *VerifierSuite) TestVerifyNeverPanics() {
	s.Run("panicking resolver degrades to a non-match", func() {
		s.resolver.EXPECT().
			LookupTXT(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, string) ([]string, error) {
				panic("resolver blew up")
			}).
			Times(6)

		var result Result
		s.NotPanics(func() {
			result = s.newVerifier().Verify(context.Background(), "acme.io", testToken)
		})
		s.False(result.Verified)
		s.Contains(result.Reason, "_proovd.acme.io")
	})

	s.Run("unexpected panic outside the retry loop becomes a reason", func() {
		s.resolver.EXPECT().
			LookupTXT(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("no records")).
			Times(2)

		v := New(s.resolver,
			WithLogger(logger.NewDiscard()),
			WithProduction(true),
			WithSleep(func(context.Context, time.Duration) error {
				panic("scheduler wedged")
			}),
		)

		var result Result
		s.NotPanics(func() {
			result = v.Verify(context.Background(), "acme.io", testToken)
		})
		s.False(result.Verified)
		s.Contains(result.Reason, "Verification error:")
		s.Contains(result.Reason, "scheduler wedged")
	})
}

func (s *VerifierSuite) TestVerifyInvalidDomainFailsBeforeLookups() {
	// No EXPECT: any resolver call would fail the test.
	result := s.newVerifier().Verify(context.Background(), "not a domain", testToken)
	s.False(result.Verified)
	s.Contains(result.Reason, "Verification error:")
}

func (s *VerifierSuite) TestVerifyCancelledDuringDelay() {
	ctx, cancel := context.WithCancel(context.Background())

	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no records")).
		Times(2)

	v := New(s.resolver,
		WithLogger(logger.NewDiscard()),
		WithProduction(true),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	result := v.Verify(ctx, "acme.io", testToken)
	s.False(result.Verified)
	s.Contains(result.Reason, "cancelled")
}

func (s *VerifierSuite) TestDevelopmentBypass() {
	s.Run("non-production localhost verifies with zero resolver calls", func() {
		var calls atomic.Int64
		resolver := resolverFunc(func(context.Context, string) ([]string, error) {
			calls.Add(1)
			return nil, errors.New("must not be called")
		})

		v := New(resolver,
			WithLogger(logger.NewDiscard()),
			WithProduction(false),
			WithSleep(s.sleeper.sleep),
		)

		for _, host := range []string{"localhost", "example.com", "myapp.test", "dev.local"} {
			result := v.Verify(context.Background(), host, testToken)
			s.True(result.Verified, host)
		}
		s.Equal(int64(0), calls.Load())
	})

	s.Run("production never bypasses", func() {
		resolver := resolverFunc(func(context.Context, string) ([]string, error) {
			return nil, errors.New("no records")
		})

		v := New(resolver,
			WithLogger(logger.NewDiscard()),
			WithProduction(true),
			WithSleep(s.sleeper.sleep),
		)
		result := v.Verify(context.Background(), "example.com", testToken)
		s.False(result.Verified)
	})

	s.Run("non-production public domains still hit DNS", func() {
		resolver := resolverFunc(func(context.Context, string) ([]string, error) {
			return []string{testToken}, nil
		})

		v := New(resolver,
			WithLogger(logger.NewDiscard()),
			WithProduction(false),
			WithSleep(s.sleeper.sleep),
		)
		result := v.Verify(context.Background(), "acme.io", testToken)
		s.True(result.Verified)
	})
}

func (s *VerifierSuite) TestCheckDNSSingleRound() {
	s.resolver.EXPECT().
		LookupTXT(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no records")).
		Times(2)

	result := s.newVerifier().CheckDNS(context.Background(), "acme.io", testToken)
	s.False(result.Verified)
	s.Empty(s.sleeper.delays, "diagnostic check must not retry or sleep")
}

// resolverFunc adapts a function to the Resolver interface.
type resolverFunc func(ctx context.Context, name string) ([]string, error)

func (f resolverFunc) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return f(ctx, name)
}
