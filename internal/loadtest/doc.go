// Package loadtest drives staged virtual-user load against the booking API
// and the frontend, summarises the samples k6-style and evaluates
// thresholds such as "p(95)<200" against them.
package loadtest
