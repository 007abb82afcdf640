// Package infra contains technical adapters such as the MQTT feed,
// metrics exporters and error monitoring. These packages depend only on
// the contracts defined in the core packages.
package infra
