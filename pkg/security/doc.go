/*
Package security groups transport security concerns for the proxy.

The tls subpackage owns the certificate lifecycle: generation and
persistence of self-signed pairs, validation of externally managed
pairs, hot reload on file change, and scheduled renewal.

# Certificate Setup

	manager := tls.NewManager(&cfg.Server.SSL)
	cert, err := manager.Ensure()
	if err != nil {
		log.Fatal(err)
	}

	reloader, err := tls.NewCertificateReloader(cert.CertFile, cert.KeyFile)
	if err != nil {
		log.Fatal(err)
	}

	server := &http.Server{TLSConfig: reloader.ServerTLSConfig()}
*/
package security
