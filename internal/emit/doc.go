// Package emit is the target-independent half of code generation.
//
// A generation pass owns one Session (fragment sections, pin tracker, PWM
// allocator, diagnostics) and one Pass (the tree walker). Block rules are
// registered per target in a Table and receive the Pass, through which they
// reach the Session. Finish assembles the final program text.
//
// Nothing in this package is shared between passes: a Session is built for
// one workspace and dropped afterwards.
package emit
