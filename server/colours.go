package server

// ANSI colours for the DEV route listing, keyed by the methods the API registers.
const (
	colourGet   = "\033[32m"
	colourPost  = "\033[34m"
	colourPatch = "\033[35m"
	colourOther = "\033[90m"
	colourReset = "\033[0m"
)

var methodColours = map[string]string{
	"GET":   colourGet,
	"POST":  colourPost,
	"PATCH": colourPatch,
}
