// Package types defines the Crime entity, the Database and CrimeDAO
// interfaces, configuration, and the standard errors for the criminalintent
// store.
package types
