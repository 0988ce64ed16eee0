// Command atermctl works with maximally shared term files.
package main

func main() {
	execute()
}
