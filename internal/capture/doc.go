// Package capture shells out to an operating system screenshot tool to
// produce screen images on demand.
package capture
