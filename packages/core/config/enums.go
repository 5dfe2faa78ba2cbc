package config

// Credentials controls whether credentials (cookies, authorization) travel with a request.
type Credentials string

const (
	CredentialsOmit       Credentials = "omit"
	CredentialsSameOrigin Credentials = "same-origin"
	CredentialsInclude    Credentials = "include"
)

// CacheMode controls how the request interacts with HTTP caches.
type CacheMode string

const (
	CacheDefault      CacheMode = "default"
	CacheNoStore      CacheMode = "no-store"
	CacheReload       CacheMode = "reload"
	CacheNoCache      CacheMode = "no-cache"
	CacheForceCache   CacheMode = "force-cache"
	CacheOnlyIfCached CacheMode = "only-if-cached"
)

// RedirectMode controls what happens when the server answers with a redirect.
type RedirectMode string

const (
	RedirectFollow RedirectMode = "follow"
	RedirectError  RedirectMode = "error"
	RedirectManual RedirectMode = "manual"
)

// ReferrerPolicy controls how much referrer information is sent.
type ReferrerPolicy string

const (
	ReferrerPolicyNoReferrer              ReferrerPolicy = "no-referrer"
	ReferrerPolicyNoReferrerWhenDowngrade ReferrerPolicy = "no-referrer-when-downgrade"
	ReferrerPolicyOrigin                  ReferrerPolicy = "origin"
	ReferrerPolicyOriginWhenCrossOrigin   ReferrerPolicy = "origin-when-cross-origin"
	ReferrerPolicyUnsafeURL               ReferrerPolicy = "unsafe-url"
)

// RequestMode is the fetch request mode.
type RequestMode string

const (
	ModeCORS       RequestMode = "cors"
	ModeNoCORS     RequestMode = "no-cors"
	ModeSameOrigin RequestMode = "same-origin"
)

// Valid reports whether c is unset or one of the known credentials modes.
func (c Credentials) Valid() bool {
	switch c {
	case "", CredentialsOmit, CredentialsSameOrigin, CredentialsInclude:
		return true
	}
	return false
}

// Valid reports whether m is unset or one of the known cache modes.
func (m CacheMode) Valid() bool {
	switch m {
	case "", CacheDefault, CacheNoStore, CacheReload, CacheNoCache, CacheForceCache, CacheOnlyIfCached:
		return true
	}
	return false
}

// Valid reports whether m is unset or one of the known redirect modes.
func (m RedirectMode) Valid() bool {
	switch m {
	case "", RedirectFollow, RedirectError, RedirectManual:
		return true
	}
	return false
}

// Valid reports whether p is unset or one of the known referrer policies.
func (p ReferrerPolicy) Valid() bool {
	switch p {
	case "", ReferrerPolicyNoReferrer, ReferrerPolicyNoReferrerWhenDowngrade, ReferrerPolicyOrigin,
		ReferrerPolicyOriginWhenCrossOrigin, ReferrerPolicyUnsafeURL:
		return true
	}
	return false
}

// Valid reports whether m is unset or one of the known request modes.
func (m RequestMode) Valid() bool {
	switch m {
	case "", ModeCORS, ModeNoCORS, ModeSameOrigin:
		return true
	}
	return false
}
