// Package docker builds and pulls the images of a service group.
//
// The Client type wraps the Docker engine API for image builds and pulls,
// streaming engine progress to the console. The ComposeClient type checks a
// generated compose manifest with the docker compose CLI.
//
// # Interface Abstraction
//
// The DockerAPI interface abstracts the Docker SDK, enabling mock injection
// for testing. Use NewClientWithAPI for test scenarios.
//
// # Example
//
//	client, err := docker.NewClient()
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.BuildImage(ctx, docker.BuildRequest{
//	    ContextDir: "build/demo/web",
//	    Tags:       []string{"acme/web:20240101.001"},
//	})
package docker
