// Package imports orchestrates the upload, validation and import of game
// plan and reach sufficiency files.
//
// A session moves uploaded -> validated -> importing -> imported|error. The
// service owns those transitions; rows themselves are checked by the
// validation package and written by the importer package. Reference stores
// are opened per unit of work and always released.
package imports
