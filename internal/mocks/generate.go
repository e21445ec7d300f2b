package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name FootballAPI --dir ../usecase --output usecase --outpkg usecasemock --filename footballapi_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Probe --dir ../usecase --output usecase --outpkg usecasemock --filename probe_mock.go
