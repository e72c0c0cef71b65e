// Command mudra recognizes hand gestures from a camera and turns them into
// presentation actions.
package main

import _ "go.uber.org/automaxprocs"

func main() {
	Execute()
}
