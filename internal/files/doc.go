// Package files groups dataset discovery.
//
//   - filesystem: directory traversal over the OS or an in-memory tree
//   - scanner: finds shapefiles and turns them into load requests
//
//	s := scanner.NewScanner()
//	datasets, err := s.ScanDirectory("./boundaries", true)
//	reqs, err := scanner.Requests(datasets, "gis", true, false)
package files
