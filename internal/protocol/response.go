package protocol

import "fmt"

// Response lines written by the server. The three digit prefixes are fixed per
// outcome and are not recomputed from the key or value.
const (
	InvalidRequest = "Invalid request\n"
	InvalidCommand = "Invalid command\n"
)

// ResponseRead answers a READ hit
func ResponseRead(key, value string) string {
	return fmt.Sprintf("018 OK (%s, %s) read\n", key, value)
}

// ResponseRemoved answers a GET hit
func ResponseRemoved(key, value string) string {
	return fmt.Sprintf("022 OK (%s, %s) removed\n", key, value)
}

// ResponseAdded answers a PUT of a new key
func ResponseAdded(key, value string) string {
	return fmt.Sprintf("014 OK (%s, %s) added\n", key, value)
}

// ResponseNotExist answers a READ or GET miss
func ResponseNotExist(key string) string {
	return fmt.Sprintf("024 ERR %s does not exist\n", key)
}

// ResponseAlreadyExists answers a PUT of a key that is already stored
func ResponseAlreadyExists(key string) string {
	return fmt.Sprintf("024 ERR %s already exists\n", key)
}
