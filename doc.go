// Package libfastbit provides an in-memory staging area for building
// column-oriented, append-only data partitions on local storage.
//
// A client declares a schema of named, typed columns, streams values in
// row-by-row, as column chunks or as parsed text lines, and then
// materializes the staged content as one raw file per column, an
// optional presence-bitmap sidecar per column and a human-readable
// partition metadata file. Subsequent writes append to the same
// partition, merging row counts and checking per-column type
// compatibility.
//
// # Packages
//
//   - pkg/table: the staging table itself - schema management, chunk,
//     row and text appends, normalization and capacity management
//   - pkg/column: the typed value buffers backing staged columns
//   - pkg/bitmap: presence bitmaps tracking which rows hold values
//   - pkg/partition: the on-disk partition reader and writer
//   - pkg/types: logical column types and their null sentinels
//   - pkg/params: the registry consulted for default index hints
//
// # Quick Start
//
// Declare a schema, import a CSV file and write a partition:
//
//	t := table.New()
//	t.ParseNamesAndTypes("id:int, name:text, energy:double")
//	t.ReadCSV("events.csv", 1000000, ",")
//	t.Normalize()
//	t.Write("/data/events", "events", "imported events", "")
package libfastbit
