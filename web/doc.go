// Package web serves the playground in a browser.
//
// Routes:
//
//	GET  /                    page; ?example=name selects an example
//	POST /run                 run the submitted source (form)
//	GET  /examples/{name}     raw example text
//	GET  /api/examples        example list
//	GET  /api/examples/{name} one example with its text
//	POST /api/run             {"source", "secondary"} -> {"id", "kind", "image", "secondary", "error"}
package web
