// Package services contains the application services of the journeykeeper
// client.
//
//   - SyncManager uploads pending and failed recordings whenever the device
//     is online, bounding retries with exponential backoff.
//   - RecordingService is the capture-side API that saves, lists and deletes
//     recordings together with their files.
//   - SessionService logs in against the backend and keeps the session in
//     the local database.
package services
