// Package types defines the NodeFlow entity model (nodes, links, property
// items, process types and project metadata), the Session interface used by
// front ends, configuration, and the standard errors returned by the working
// store, the archive codec and the project session.
package types
