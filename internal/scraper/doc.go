// Package scraper pulls the bible atlas listing and place detail pages,
// writes each scrape as a JSON file to blob storage and folds curated files
// back into the place tables.
//
// A scrape runs in two passes. Parent places from one listing page are
// fetched in small parallel batches, collecting the identification links
// on each detail page. The unique identification pages are then fetched the
// same way as child places. Progress is reported through a progress.Emitter
// with the parent pass filling 0-50% and the child pass 50-100%.
package scraper
