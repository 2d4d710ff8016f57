// Package discovery handles mDNS for the arm daemon and its clients.
//
// The daemon side (Announce) registers the control port as a _robotarm._tcp
// service so operators on the same network can find it without
// configuration. The client side (Scanner) browses for those registrations;
// armctl's discover and teleop commands use it to locate an arm to drive.
//
// Registration is optional and failure is non-fatal: an arm that cannot
// announce is still reachable by address.
package discovery
