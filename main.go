package main

import "github.com/coursehub/coursehub-api/cmd"

// @title                       CourseHub API
// @version                     1.0
// @description                 Accounts, sessions, course catalog and enrollment.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cmd.Execute()
}
