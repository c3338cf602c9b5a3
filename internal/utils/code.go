package utils // package utils provides small helpers shared across the service

import (
    "crypto/rand" // secure random number generation
    "math/big"    // big.Int for unbiased random indexing
)

// bookingCodeAlphabet is uppercase alphanumerics; codes are meant to be
// read over the phone at the front desk.
const bookingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBookingCode returns a short human-facing booking reference of the form
// SB-XXXXX.  The suffix is drawn from crypto/rand; with 36^5 combinations
// collisions are left to the unique column constraint to catch.
func NewBookingCode() string {
    buf := make([]byte, 5)
    max := big.NewInt(int64(len(bookingCodeAlphabet)))
    for i := range buf {
        n, err := rand.Int(rand.Reader, max)
        if err != nil {
            // crypto/rand only fails when the platform source is broken;
            // there is no reasonable recovery at this level.
            panic(err)
        }
        buf[i] = bookingCodeAlphabet[n.Int64()]
    }
    return "SB-" + string(buf)
}
