package httpcore

// Status codes the engine branches on.
const (
	StatusOK                = 200
	StatusNoContent         = 204
	StatusMovedPermanently  = 301
	StatusFound             = 302
	StatusSeeOther          = 303
	StatusNotModified       = 304
	StatusTemporaryRedirect = 307
	StatusPermanentRedirect = 308
)

// IsRedirectCode reports whether code is one of the redirect status
// codes that carry a Location target: 301, 302, 303, 307 and 308.
func IsRedirectCode(code int) bool {
	switch code {
	case StatusMovedPermanently, StatusFound, StatusSeeOther,
		StatusTemporaryRedirect, StatusPermanentRedirect:
		return true
	}
	return false
}
