// Package checkinsdk is a Go client for the checkin attendance and key
// distribution APIs. The request and response types are shared with the
// server handlers so both sides agree on the wire format.
package checkinsdk
