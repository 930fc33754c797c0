package recon

import "errors"

// ErrInvalidSignal: bentuk sinyal tidak valid (client error di boundary).
// NotFound dan error persistence lewat dari store apa adanya; kebijakan
// siapa yg melihat error itu ada di caller: confirm handler surface ke
// browser, webhook handler log + tetap ack 200 ke gateway.
var ErrInvalidSignal = errors.New("invalid signal")
