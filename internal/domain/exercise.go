package domain

// Exercise is a normalized result from the upstream exercise database.
// GifURL is empty when the upstream link was missing or not an absolute URL.
type Exercise struct {
	Name      string
	BodyPart  string
	Equipment string
	Target    string
	GifURL    string
}
