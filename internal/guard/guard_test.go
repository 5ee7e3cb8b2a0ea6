package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
)

var (
	signedOut   = domain.Session{}
	mustOnboard = domain.Session{Token: "x", Onboarded: false}
	onboarded   = domain.Session{Token: "x", Onboarded: true}
)

func TestSignedOut_GuardedRoutesGoToLogin(t *testing.T) {
	for _, r := range guard.Routes() {
		if r.Area == guard.AreaPublic {
			continue
		}
		d := guard.Resolve(r.Path, signedOut)
		assert.Equal(t, guard.ActionRedirect, d.Action, r.Path)
		assert.Equal(t, guard.PathLogin, d.RedirectTo, r.Path)
	}
}

func TestNotOnboarded(t *testing.T) {
	for _, p := range []string{"/", "/invoices", "/erp", "/settings"} {
		d := guard.Resolve(p, mustOnboard)
		assert.Equal(t, guard.PathOnboarding, d.RedirectTo, p)
	}
	assert.True(t, guard.Resolve("/onboarding", mustOnboard).Rendered())
}

func TestOnboarded(t *testing.T) {
	d := guard.Resolve("/onboarding", onboarded)
	assert.Equal(t, guard.ActionRedirect, d.Action)
	assert.Equal(t, guard.PathHome, d.RedirectTo)

	for _, p := range []string{"/", "/invoices", "/erp", "/settings"} {
		assert.True(t, guard.Resolve(p, onboarded).Rendered(), p)
	}
}

func TestPublicRoutesAlwaysRender(t *testing.T) {
	for _, s := range []domain.Session{signedOut, mustOnboard, onboarded} {
		for _, p := range []string{"/login", "/register", "/forgot-password", "/reset-password"} {
			assert.True(t, guard.Resolve(p, s).Rendered(), p)
		}
	}
}

func TestUnknownPathGoesToLogin(t *testing.T) {
	d := guard.Resolve("/billing", onboarded)
	assert.Equal(t, guard.PathLogin, d.RedirectTo)
	assert.Equal(t, "/billing", d.Path)
}

func TestResolve_Idempotent(t *testing.T) {
	for _, s := range []domain.Session{signedOut, mustOnboard, onboarded} {
		for _, r := range guard.Routes() {
			assert.Equal(t, guard.Resolve(r.Path, s), guard.Resolve(r.Path, s))
		}
	}
}

func TestResolve_FollowingRedirectsSettles(t *testing.T) {
	for _, s := range []domain.Session{signedOut, mustOnboard, onboarded} {
		for _, r := range guard.Routes() {
			d := guard.Resolve(r.Path, s)
			for i := 0; i < 3 && !d.Rendered(); i++ {
				d = guard.Resolve(d.RedirectTo, s)
			}
			assert.True(t, d.Rendered(), "navigation from %s must settle", r.Path)
		}
	}
}

func TestLookup_Normalizes(t *testing.T) {
	r, ok := guard.Lookup("/invoices/?status=paid")
	assert.True(t, ok)
	assert.Equal(t, "Invoices", r.Title)

	r, ok = guard.Lookup("")
	assert.True(t, ok)
	assert.Equal(t, "/", r.Path)
}

func TestLanding(t *testing.T) {
	assert.Equal(t, "/login", guard.Landing(signedOut))
	assert.Equal(t, "/onboarding", guard.Landing(mustOnboard))
	assert.Equal(t, "/", guard.Landing(onboarded))
}
