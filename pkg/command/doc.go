// Package command implements time-bounded, resource-owning units of robot
// control logic and the scheduler that polls them to completion.
//
// # Lifecycle
//
// A Command moves through created, initialized, running and then exactly one
// of completed or interrupted. The scheduler calls Initialize once, Execute
// every cycle until it returns true or the timeout elapses, and finally End.
// If the command is preempted, canceled, faulted or the process shuts down,
// Interrupted is called instead of End. The two are never both called.
//
// # Requirements
//
// Each command declares the Requirables (physical subsystems) it needs. The
// set is frozen at construction. When a new command shares a Requirable with
// a running one, the running command is interrupted, unless it was marked
// not interruptible, in which case the new command is rejected. A
// command preempted before it was ever initialized is dropped silently.
//
// # Writing commands
//
// Most commands are built from plain functions with the factories (Once,
// Until, Create, Pause, Cancel, Use). Named command types embed Base:
//
//	type driveDistance struct {
//		command.Base
//		drive *robot.Drivetrain
//	}
//
//	func (c *driveDistance) Execute() bool {
//		c.drive.Drive(0.5)
//		return c.drive.Distance() >= 2
//	}
package command
