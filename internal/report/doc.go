// Package report writes the outcome of a clusterstats run.
//
// This package is internal to clusterstats and holds the output side of the
// command line tool: the aggregated table as a CSV file named after the run
// time, and the console summary with the QoS verdict.
//
// The main components are:
//
//   - [WriteCSV]: Writes a table to <dir>/<unix-millis>.csv
//   - [EncodeCSV]: Writes a table as CSV to any writer
//   - [PrintSummary]: Prints the verdict, counts, results and failures
//
// Users of the clusterstats library should not need to interact with this
// package directly.
package report
