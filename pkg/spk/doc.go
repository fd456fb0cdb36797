// Package spk models the catalog protocol spoken by Synology package
// sources.
//
// # Requests
//
// [BuildRequest] turns a device description (arch, model, DSM version,
// channel) into the form fields a source expects and picks the User-Agent
// header. Most sources accept a POST form; legacy sources only accept a GET
// with the same fields in the query string, built by [LegacyURL].
//
// # Responses
//
// Sources answer in one of two JSON shapes:
//
//	{"packages": [ {...}, {...} ]}   // ShapeObject
//	[ {...}, {...} ]                 // ShapeArray
//
// [Parse] detects the shape, decodes it into a [Catalog] and normalizes
// provider quirks: records may name the package with "package" or "name",
// "thumbnail" may be a string or an array, and description text may carry
// double-escaped newlines.
//
// # Projection
//
// [RawPackage.Project] maps a decoded record to the [Package] value served
// to clients, attaching the owning source and the cached icon file name.
package spk
