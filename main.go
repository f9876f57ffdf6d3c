// Command pagegen generates static character pages for the GigaSpace site.
package main

import "github.com/JakeFAU/gigaspace-pagegen/cmd"

func main() {
	cmd.Execute()
}
