// Package notify delivers review-requested notifications to the
// reviewer group through the external email sender service.
package notify
