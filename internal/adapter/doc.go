// Package adapter fetches device configurations from the live network.
//
// SSHCollector connects to every device of an inventory, runs the
// platform's "show running-config" equivalent and writes the output to
// <root>/<device>/config.dump, the layout the loader reads. Collection
// runs with bounded concurrency; a failing device is reported in the
// result and does not stop the others.
//
// The SSH transport sits behind CommandRunner so that collection can be
// exercised without a network.
package adapter
