package config

import "git.home.luguber.info/inful/specpreview/internal/storage"

// StorageOptions converts the storage section into storage.Open options.
func (c *Config) StorageOptions() (storage.Options, error) {
	driver, err := storage.ParseDriver(c.Storage.Driver)
	if err != nil {
		return storage.Options{}, err
	}
	return storage.Options{
		Driver:  driver,
		Path:    c.Storage.Path,
		NATSURL: c.Storage.NATSURL,
		Bucket:  c.Storage.Bucket,
	}, nil
}
