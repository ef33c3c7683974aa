package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/auth"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/discovery"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/export"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"

	// Blind import support for sqlite3 used by export.SQLite.
	_ "github.com/mattn/go-sqlite3"
)

var (
	listen     = flag.String("listen", ":8443", "")
	certFile   = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile    = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output     = flag.String("output", "", "Export mechanism to use (one of: csv, sqlite, mysql)")
	secretFile = flag.String("secretFile", "", "Path to the file containing the secret collectors sign their bearer tokens with. Tokens are not checked when empty.")
	mdnsName   = flag.String("mdnsName", "", "Advertise the server via mDNS under this instance name.")

	// CSV
	csvFile = flag.String("csvFile", "", "File to write CSV to, stdout when empty.")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/spectre", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "spectre", "Name of the DB to use.")
)

const (
	collectEndpoint = "/spectre/v1/collect"
	healthEndpoint  = "/healthz"
)

type SpectreServer struct {
	samples chan<- sdr.Sample
	// secret verifies bearer tokens when set.
	secret []byte
}

func (s *SpectreServer) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(healthEndpoint, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(collectEndpoint, s.authenticate, s.collectHandler)
	return r
}

func (s *SpectreServer) authenticate(c *gin.Context) {
	if len(s.secret) == 0 {
		return
	}
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": err.Error()})
		return
	}
	sub, err := auth.Verify(s.secret, token)
	if err != nil {
		glog.Warningf("rejected token from %s: %s\n", c.ClientIP(), err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "invalid token"})
		return
	}
	c.Set("collector", sub)
}

func (s *SpectreServer) collectHandler(c *gin.Context) {
	samples := []sdr.Sample{}
	if err := c.ShouldBindJSON(&samples); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": err.Error()})
		return
	}
	for _, sample := range samples {
		select {
		case s.samples <- sample:
		case <-c.Request.Context().Done():
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "canceled"})
			return
		}
	}
	glog.V(2).Infof("collected %d samples from %s (%s)", len(samples), c.GetString("collector"), c.ClientIP())
	c.JSON(http.StatusOK, export.CollectResponse{
		Status:      "ok",
		SampleCount: len(samples),
	})
}

func readSecret(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()
	defer glog.Flush()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "csv":
		exporter = &export.CSV{File: *csvFile}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQLite{
			DB: db,
		}
	case "mysql":
		pass, err := readSecret(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		cfg := mysql.Config{
			User:                 *mysqlUser,
			Passwd:               pass,
			Net:                  "tcp",
			Addr:                 *mysqlServer,
			DBName:               *mysqlDBName,
			AllowNativePasswords: true,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.MySQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: csv, sqlite, mysql", *output)
	}

	var secret []byte
	if *secretFile != "" {
		s, err := readSecret(*secretFile)
		if err != nil {
			glog.Exitf("unable to read secret file %q: %s", *secretFile, err)
		}
		secret = []byte(s)
	}

	// Export samples.
	samples := make(chan sdr.Sample, 1000)
	exported := make(chan struct{})
	go func() {
		defer close(exported)
		// The exporter drains what the handlers queued, even after a signal.
		if err := exporter.Write(context.Background(), samples); err != nil {
			glog.Errorf("export failed: %s", err)
			stop()
		}
	}()

	// Configure and run webserver.
	s := &SpectreServer{
		samples: samples,
		secret:  secret,
	}
	server := &http.Server{
		Addr:    *listen,
		Handler: s.router(),
	}
	tls := *certFile != "" || *keyFile != ""

	if *mdnsName != "" {
		_, portStr, err := net.SplitHostPort(*listen)
		if err != nil {
			glog.Exitf("unable to parse listen address %q: %s", *listen, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			glog.Exitf("unable to parse port of %q: %s", *listen, err)
		}
		zc, err := discovery.Advertise(*mdnsName, port, tls)
		if err != nil {
			glog.Warningf("not advertising via mDNS: %s", err)
		} else {
			defer zc.Shutdown()
		}
	}

	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var err error
	if tls {
		err = server.ListenAndServeTLS(*certFile, *keyFile)
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Error(err)
	}

	stop()
	<-shutdown
	// No handler is left to write samples.
	close(samples)
	<-exported
}
