// Package ports defines the interfaces between the registry core and
// its adapters (status storage, metrics, lifecycle events).
package ports
