// Package state keeps the per-chat conversation step. A chat is idle,
// waiting for a roll number for a chosen document, or waiting for the
// mobile number that completes an admit card request.
package state
