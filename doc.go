// Project Structure Overview
/*
photostudio-backend/
├── cmd/
│   └── server/
│       └── main.go
├── internal/
│   ├── config/
│   │   └── config.go
│   ├── models/
│   │   ├── image.go
│   │   ├── studio_event.go
│   │   └── common.go
│   ├── studio/
│   │   ├── session.go
│   │   ├── collection.go
│   │   ├── history.go
│   │   ├── transition.go
│   │   ├── operations.go
│   │   ├── fetch.go
│   │   └── manager.go
│   ├── handlers/
│   │   ├── studio.go
│   │   ├── subscription.go
│   │   └── events.go
│   ├── services/
│   │   ├── staging_service.go
│   │   ├── entitlement_service.go
│   │   └── event_service.go
│   ├── catalog/
│   ├── imageservice/
│   ├── productmedia/
│   ├── probe/
│   ├── httpclient/
│   ├── middleware/
│   │   ├── auth.go
│   │   ├── cors.go
│   │   ├── rate_limit.go
│   │   └── logging.go
│   ├── database/
│   │   └── connection.go
│   ├── utils/
│   │   ├── jwt.go
│   │   ├── validator.go
│   │   ├── crypto.go
│   │   ├── pagination.go
│   │   └── response.go
│   └── router/
│       └── router.go
├── go.mod
└── go.sum
*/

// Package photostudio is the backend for the PhotoStudio dashboard: it hosts
// the server-side editing sessions the dashboard drives, talks to the image
// generation service and the store catalog, and publishes finished images
// into product galleries.
package photostudio
