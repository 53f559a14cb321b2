// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package api exposes the account service as JSON over HTTP.
//
// Callers present tokens as "Authorization: Bearer <token>". Every response,
// success or failure, is an envelope:
//
//	{"code": 5000, "title": "Success", "detail": "The request was successful.", "data": {...}}
//
// where code is the wire status of the outcome's auth.Kind. Internal failures
// always carry the same generic detail.
package api
