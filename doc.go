// Package cyberservice turns a long-running task into an operating system
// service.
//
// Supported systems
//
// 	- Windows
// 		- Windows service (service control manager)
// 	- Linux
// 		- systemd (Type=notify)
// 	- macOS
// 		- launchd
//
// Usage
//
// Implement the Service interface, usually by embedding Base and overriding
// some of its methods:
//
// 	- Start is called once the service manager has been told the service
// 	is starting. Use it to set up state, such as a running condition.
// 	- Main is called after Start. The service runs for as long as Main has
// 	not returned. Base's Main blocks until a stop is requested.
// 	- Stop is called when the service manager asks the service to stop.
// 	Use it to release resources or invalidate a running condition.
//
// Describe the service with a Descriptor and call ParseCommandLine from
// main:
//
// 	func main() {
// 		err := cyberservice.ParseCommandLine(cyberservice.Descriptor{
// 			Name:        "MyService",
// 			DisplayName: "My Service",
// 			Description: "Does my things.",
// 		}, &myService{})
// 		if err != nil {
// 			log.Println(err.Error())
// 			os.Exit(cyberservice.ExitCode(err))
// 		}
// 	}
//
// When started without arguments by the service manager, ParseCommandLine
// runs the service and returns once it has stopped. With arguments it runs
// an administrative command ('install', 'remove', 'start', 'stop', 'debug',
// and so on) instead. Run the program with '-h' for the full list.
//
// The 'cyberservice/control' subpackage is used by the administrative
// commands to manage the service's installation and state. It can also be
// used on its own.
package cyberservice
