// Package dashboard runs the filter, visualize and export pipeline behind
// the page.
//
// Every interaction is a full rerun. [Service.Run] loads the session's
// uploaded file (parsed once and kept in a [TableCache]), resolves the
// column selection, advances the cosmetic [Progress] indicator and hands
// the table to [Pipeline], which derives the filtered table and plans every
// chart on the page. Pipeline is pure so the whole page can be tested
// without a session or a server.
//
// # Sessions
//
// The column selection is persisted in the session under the key
// "filtros". It is written the first time a session sees a table and
// whenever the user submits the column form, never as a side effect of
// viewing or downloading. Reruns of one session are serialized with the
// store's per-session lock; different sessions run concurrently.
//
// # Error Handling
//
// Parse and render errors are returned as-is. [MapError] turns them into a
// [UserMessage] with a reference code for the page:
//
//   - FILE001-FILE005: upload errors (size, empty, malformed CSV or XLSX)
//   - CHART001-CHART004: chart requests the data cannot satisfy
//   - UPL001-UPL003: busy, cancelled or timed out requests
//   - SES001-SES002: session storage
package dashboard
