package crawler

import "errors"

var (
	// ErrTransport marks a fetch that could not complete (DNS, connect, timeout).
	ErrTransport = errors.New("transport failure")
	// ErrUnexpectedStatus marks a response whose status was not 200.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrStructure marks HTML that could not be read or lacked a required element.
	ErrStructure = errors.New("structural mismatch")
	// ErrDateParse marks a date string that matched no known format.
	ErrDateParse = errors.New("unrecognized date")
	// ErrDuplicateArticle is returned by stores when the link is already recorded.
	ErrDuplicateArticle = errors.New("article already stored")
	// ErrRunInProgress rejects a run while another one is still active.
	ErrRunInProgress = errors.New("crawl run already in progress")
)
