// Package exportpdf lays out resume documents in headless Chromium.
//
// ChromiumEngine launches one browser process per call. It measures every
// section and block of the document in a single read, packs them into A4
// pages, materializes the pages and, for exports, prints them to PDF. The
// browser is torn down when the call returns, whatever the outcome.
package exportpdf
