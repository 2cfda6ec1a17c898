// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Server identity: the set of locations a server accepts requests for.

package hemi

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// RFC 2396 (section 3.2.2):
//
// host        = hostname | IPv4address
// hostname    = *( domainlabel "." ) toplabel [ "." ]
// domainlabel = alphanum | alphanum *( alphanum | "-" ) alphanum
// toplabel    = alpha | alpha *( alphanum | "-" ) alphanum
// IPv4address = 1*digit "." 1*digit "." 1*digit "." 1*digit
var identityHostRegexp = regexp.MustCompile(`(?i)^(?:(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)*[a-z](?:[a-z0-9-]*[a-z0-9])?|\d+\.\d+\.\d+\.\d+)$`)

var (
	errBadScheme = errors.New("identity: scheme must be http or https")
	errBadHost   = errors.New("identity: bad host")
	errBadPort   = errors.New("identity: port out of range")
)

// Location is a (scheme, host, port) tuple.
type Location struct {
	Scheme string
	Host   string
	Port   int
}

func (l Location) String() string { return l.Scheme + "://" + l.Host + ":" + strconv.Itoa(l.Port) }

// ParseLocation parses "scheme://host[:port]". The port defaults to 80 for http and 443 for https.
func ParseLocation(text string) (Location, error) {
	scheme, authority, ok := strings.Cut(text, "://")
	if !ok {
		return Location{}, errBadScheme
	}
	scheme = strings.ToLower(scheme)
	port := 80
	if scheme == "https" {
		port = 443
	}
	host, portText, hasPort := strings.Cut(authority, ":")
	if hasPort {
		if !isDigits(portText) {
			return Location{}, errBadPort
		}
		n, err := strconv.Atoi(portText)
		if err != nil {
			return Location{}, errBadPort
		}
		port = n
	}
	if err := identityValidate(scheme, host, port); err != nil {
		return Location{}, err
	}
	return Location{scheme, strings.ToLower(host), port}, nil
}

// Identity is the set of locations of a server, with one of them as the primary. Hosts are case-insensitive.
type Identity struct {
	// States
	rwMutex     sync.RWMutex              // protects fields below
	locations   map[string]map[int]string // host -> port -> scheme
	primary     Location                  // port is -1 if no primary
	defaultPort int                       // -1 if not initialized
	host        string                    // host given to initialize
}

func NewIdentity() *Identity {
	i := new(Identity)
	i.locations = make(map[string]map[int]string)
	i.primary = Location{"http", "127.0.0.1", -1}
	i.defaultPort = -1
	i.locations["localhost"] = make(map[int]string)
	return i
}

// Add adds a location. An existing location of the same host and port is replaced.
func (i *Identity) Add(scheme string, host string, port int) error {
	if err := identityValidate(scheme, host, port); err != nil {
		return err
	}
	i.rwMutex.Lock()
	i.add(scheme, strings.ToLower(host), port)
	i.rwMutex.Unlock()
	return nil
}
func (i *Identity) add(scheme string, host string, port int) {
	ports := i.locations[host]
	if ports == nil {
		ports = make(map[int]string)
		i.locations[host] = ports
	}
	ports[port] = scheme
}

// Remove removes a location and reports whether it existed. If it was the primary and a default port is set, a new primary is elected at the default port.
func (i *Identity) Remove(scheme string, host string, port int) (bool, error) {
	if err := identityValidate(scheme, host, port); err != nil {
		return false, err
	}
	i.rwMutex.Lock()
	defer i.rwMutex.Unlock()
	return i.remove(scheme, strings.ToLower(host), port), nil
}
func (i *Identity) remove(scheme string, host string, port int) bool {
	ports := i.locations[host]
	if ports == nil || ports[port] != scheme {
		return false
	}
	delete(ports, port)
	if len(ports) == 0 && host != "localhost" {
		delete(i.locations, host)
	}
	if i.primary == (Location{scheme, host, port}) && i.defaultPort != -1 {
		// Always keep at least one location, unless we are shutting down
		i.primary.Port = -1
		i.initialize(i.defaultPort, i.host, false)
	}
	return true
}

func (i *Identity) Has(scheme string, host string, port int) bool {
	if identityValidate(scheme, host, port) != nil {
		return false
	}
	i.rwMutex.RLock()
	defer i.rwMutex.RUnlock()
	return i.locations[strings.ToLower(host)][port] == scheme
}

// Scheme returns the scheme of host:port, or "" if there is none.
func (i *Identity) Scheme(host string, port int) string {
	if identityValidate("http", host, port) != nil {
		return ""
	}
	i.rwMutex.RLock()
	defer i.rwMutex.RUnlock()
	return i.locations[strings.ToLower(host)][port]
}

// SetPrimary sets the primary location, adding it if absent.
func (i *Identity) SetPrimary(scheme string, host string, port int) error {
	if err := identityValidate(scheme, host, port); err != nil {
		return err
	}
	i.rwMutex.Lock()
	i.setPrimary(scheme, strings.ToLower(host), port)
	i.rwMutex.Unlock()
	return nil
}
func (i *Identity) setPrimary(scheme string, host string, port int) {
	i.add(scheme, host, port)
	i.primary = Location{scheme, host, port}
}

// Primary returns the primary location. port is -1 if there is no primary.
func (i *Identity) Primary() (scheme string, host string, port int) {
	i.rwMutex.RLock()
	defer i.rwMutex.RUnlock()
	return i.primary.Scheme, i.primary.Host, i.primary.Port
}

// Locations returns all locations, sorted.
func (i *Identity) Locations() []Location {
	i.rwMutex.RLock()
	var locations []Location
	for host, ports := range i.locations {
		for port, scheme := range ports {
			locations = append(locations, Location{scheme, host, port})
		}
	}
	i.rwMutex.RUnlock()
	sort.Slice(locations, func(a, b int) bool {
		if locations[a].Host != locations[b].Host {
			return locations[a].Host < locations[b].Host
		}
		return locations[a].Port < locations[b].Port
	})
	return locations
}

// Initialize is called when a server starts on port.
func (i *Identity) Initialize(port int, host string, addSecondaryDefault bool) {
	i.rwMutex.Lock()
	i.initialize(port, strings.ToLower(host), addSecondaryDefault)
	i.rwMutex.Unlock()
}
func (i *Identity) initialize(port int, host string, addSecondaryDefault bool) {
	i.host = host
	if i.primary.Port != -1 {
		i.add("http", host, port)
	} else {
		i.setPrimary("http", "localhost", port)
	}
	i.defaultPort = port
	// Only add this if we're being called at server startup
	if addSecondaryDefault && host != "127.0.0.1" {
		i.add("http", "127.0.0.1", port)
	}
}

// Teardown is called when a server stops. It reverses Initialize.
func (i *Identity) Teardown() {
	i.rwMutex.Lock()
	defer i.rwMutex.Unlock()

	if i.host != "127.0.0.1" {
		i.remove("http", "127.0.0.1", i.defaultPort)
	}
	if i.primary == (Location{"http", i.host, i.defaultPort}) {
		// Null out the default port first so remove doesn't elect a new primary
		port := i.defaultPort
		i.defaultPort = -1
		i.remove("http", i.host, port)
		i.primary.Port = -1
	} else {
		i.remove("http", i.host, i.defaultPort)
	}
}

func identityValidate(scheme string, host string, port int) error {
	if scheme != "http" && scheme != "https" {
		return errBadScheme
	}
	if !identityHostRegexp.MatchString(host) {
		return errBadHost
	}
	if port < 0 || port > 65535 {
		return errBadPort
	}
	return nil
}
